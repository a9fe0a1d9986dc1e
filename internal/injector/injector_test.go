package injector

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/alevsk/sass-inject/internal/variables"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type opaque struct{}

func (opaque) contents() {}

func vars(t *testing.T, doc string) *variables.Map {
	t.Helper()
	m, err := variables.Parse([]byte(doc))
	require.NoError(t, err)
	return m
}

func bufferFile(content string) *File {
	return &File{
		Path:     "/src/styles/main.scss",
		Base:     "/src",
		Mode:     0644,
		ModTime:  time.Unix(1700000000, 0),
		Contents: Buffer(content),
	}
}

func TestProcessBuffer(t *testing.T) {
	tests := []struct {
		name string
		vars string
		in   string
		want string
	}{
		{
			name: "empty variables leave content unchanged",
			vars: "{}",
			in:   "body{}",
			want: "body{}",
		},
		{
			name: "declarations are prepended without separator",
			vars: "x: 1",
			in:   "body{}",
			want: "$x: 1;body{}",
		},
		{
			name: "multiple declarations",
			vars: "color: red\nsize: 10",
			in:   "a{color:$color}",
			want: "$color: red;\n$size: 10;a{color:$color}",
		},
		{
			name: "empty buffer",
			vars: "x: 1",
			in:   "",
			want: "$x: 1;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inj := FromVariables(vars(t, tt.vars))
			in := bufferFile(tt.in)

			got := inj.Process(in)

			require.NotNil(t, got)
			assert.Equal(t, tt.want, string(got.Contents.(Buffer)))
			assert.Len(t, got.Contents.(Buffer), len(tt.want))
			// input record is left untouched
			assert.Equal(t, tt.in, string(in.Contents.(Buffer)))
		})
	}
}

func TestProcessKeepsOtherFields(t *testing.T) {
	inj := New("$x: 1;")
	in := bufferFile("body{}")

	got := inj.Process(in)

	want := *in
	want.Contents = Buffer("$x: 1;body{}")
	if diff := cmp.Diff(&want, got); diff != "" {
		t.Errorf("Process() mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessPassThrough(t *testing.T) {
	tests := []struct {
		name string
		decl string
		file *File
	}{
		{
			name: "null content",
			decl: "$x: 1;",
			file: &File{Path: "/src/partials", Mode: fs.ModeDir | 0755},
		},
		{
			name: "unrecognized content",
			decl: "$x: 1;",
			file: &File{Path: "/src/a.scss", Contents: opaque{}},
		},
		{
			name: "nil stream",
			decl: "$x: 1;",
			file: &File{Path: "/src/a.scss", Contents: (*Stream)(nil)},
		},
		{
			name: "stream without reader",
			decl: "$x: 1;",
			file: &File{Path: "/src/a.scss", Contents: &Stream{}},
		},
		{
			name: "no declarations with buffer",
			decl: "",
			file: bufferFile("body{}"),
		},
		{
			name: "no declarations with stream",
			decl: "",
			file: &File{Path: "/src/a.scss", Contents: NewStream(strings.NewReader("body{}"))},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.decl).Process(tt.file)
			assert.Same(t, tt.file, got)
		})
	}

	assert.Nil(t, New("$x: 1;").Process(nil))
}

func TestProcessIsNotIdempotent(t *testing.T) {
	inj := New("$x: 1;")
	once := inj.Process(bufferFile("body{}"))
	twice := inj.Process(once)

	assert.Equal(t, "$x: 1;$x: 1;body{}", string(twice.Contents.(Buffer)))
}

func TestProcessStream(t *testing.T) {
	inj := FromVariables(vars(t, "palette:\n  primary: blue\n"))
	decl := "$palette: (\nprimary: blue,\n);"
	in := &File{Path: "/src/a.scss", Contents: NewStream(strings.NewReader("body{}"))}

	got := inj.Process(in)

	require.True(t, got.IsStream())
	assert.Equal(t, in.Path, got.Path)
	data, err := io.ReadAll(got.Contents.(*Stream))
	require.NoError(t, err)
	assert.Equal(t, decl+"body{}", string(data))
}

func TestProcessStreamIsLazy(t *testing.T) {
	src := &countingReader{r: strings.NewReader("original")}
	got := New("$prefix: 1;").Process(&File{Contents: NewStream(src)})
	stream := got.Contents.(*Stream)

	// wrapping alone must not touch the source
	assert.Equal(t, 0, src.reads)

	p := make([]byte, 4)
	var read []byte
	for len(read) < len("$prefix: 1;") {
		n, err := stream.Read(p)
		require.NoError(t, err)
		read = append(read, p[:n]...)
	}
	assert.Equal(t, "$prefix: 1;", string(read))
	assert.Equal(t, 0, src.reads, "source read before prefix was delivered")

	rest, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, "original", string(rest))
	assert.Greater(t, src.reads, 0)
}

func TestProcessStreamUnbounded(t *testing.T) {
	// an endless source must still yield the prefix first
	got := New("$a: 1;").Process(&File{Contents: NewStream(endless{})})

	head := make([]byte, 16)
	_, err := io.ReadFull(got.Contents.(*Stream), head)
	require.NoError(t, err)
	assert.Equal(t, "$a: 1;xxxxxxxxxx", string(head))
}

func TestProcessStreamClose(t *testing.T) {
	src := &closingReader{Reader: strings.NewReader("body")}
	got := New("$x: 1;").Process(&File{Contents: NewStream(src)})

	require.NoError(t, got.Contents.(*Stream).Close())
	assert.True(t, src.closed)

	// plain readers close as a no-op
	plain := New("$x: 1;").Process(&File{Contents: NewStream(strings.NewReader("a"))})
	assert.NoError(t, plain.Contents.(*Stream).Close())
}

func TestProcessStreamPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	got := New("$x: 1;").Process(&File{Contents: NewStream(iotest.ErrReader(boom))})

	data, err := io.ReadAll(got.Contents.(*Stream))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "$x: 1;", string(data))
}

func TestPrefixReader(t *testing.T) {
	r := newPrefixReader("$a: 1;\n$b: 2;", strings.NewReader("body{color:$a}"))
	err := iotest.TestReader(r, []byte("$a: 1;\n$b: 2;body{color:$a}"))
	assert.NoError(t, err)

	one := newPrefixReader("abc", strings.NewReader("def"))
	data, err := io.ReadAll(iotest.OneByteReader(one))
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(data))
	assert.Equal(t, forwarding, one.state)
}

func TestTransform(t *testing.T) {
	inj := New("$x: 1;")
	calls := 0
	inj.Transform(bufferFile("body{}"), "utf8", func(file *File, err error) {
		calls++
		assert.NoError(t, err)
		assert.Equal(t, "$x: 1;body{}", string(file.Contents.(Buffer)))
	})
	assert.Equal(t, 1, calls)
}

func TestRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	inj := New("$x: 1;")
	in := make(chan *File)
	out := make(chan *File)
	errCh := make(chan error, 1)
	go func() { errCh <- inj.Run(context.Background(), in, out) }()

	inputs := []*File{
		bufferFile("a{}"),
		{Path: "/src/dir", Mode: fs.ModeDir | 0755},
		{Path: "/src/b.scss", Contents: NewStream(strings.NewReader("b{}"))},
		bufferFile("c{}"),
	}
	go func() {
		for _, f := range inputs {
			in <- f
		}
		close(in)
	}()

	var got []string
	for f := range out {
		switch c := f.Contents.(type) {
		case Buffer:
			got = append(got, string(c))
		case *Stream:
			data, err := io.ReadAll(c)
			require.NoError(t, err)
			got = append(got, string(data))
		default:
			got = append(got, "<null>")
		}
	}

	require.NoError(t, <-errCh)
	assert.Equal(t, []string{"$x: 1;a{}", "<null>", "$x: 1;b{}", "$x: 1;c{}"}, got)
}

func TestRunCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan *File)
	out := make(chan *File)
	errCh := make(chan error, 1)
	go func() { errCh <- New("$x: 1;").Run(ctx, in, out) }()

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
	_, open := <-out
	assert.False(t, open)
}

func TestRunCancelClosesPendingStream(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan *File)
	out := make(chan *File)
	errCh := make(chan error, 1)
	go func() { errCh <- New("$x: 1;").Run(ctx, in, out) }()

	src := &closingReader{Reader: strings.NewReader("body{}")}
	// Run holds the record once the send completes, nobody reads out
	in <- &File{Path: "/src/a.scss", Contents: NewStream(src)}
	cancel()

	assert.ErrorIs(t, <-errCh, context.Canceled)
	assert.True(t, src.closed)
}

func TestOptionsFilesAreInert(t *testing.T) {
	inj := New("$x: 1;", WithFiles("other/", "vendor/"))
	assert.Equal(t, []string{"other/", "vendor/"}, inj.Options().Files)

	got := inj.Process(bufferFile("body{}"))
	assert.Equal(t, "$x: 1;body{}", string(got.Contents.(Buffer)))
}

func TestFileKind(t *testing.T) {
	assert.Equal(t, KindNull, (&File{}).Kind())
	assert.Equal(t, KindNull, (&File{Contents: opaque{}}).Kind())
	assert.Equal(t, KindNull, (&File{Contents: (*Stream)(nil)}).Kind())
	assert.NoError(t, (*Stream)(nil).Close())
	assert.Equal(t, KindBuffer, bufferFile("").Kind())
	assert.Equal(t, KindStream, (&File{Contents: NewStream(bytes.NewReader(nil))}).Kind())
	assert.True(t, (&File{Mode: fs.ModeDir | 0755}).IsDir())
}

type countingReader struct {
	r     io.Reader
	reads int
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.reads++
	return c.r.Read(p)
}

type closingReader struct {
	io.Reader
	closed bool
}

func (c *closingReader) Close() error {
	c.closed = true
	return nil
}

type endless struct{}

func (endless) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 'x'
	}
	return len(p), nil
}
