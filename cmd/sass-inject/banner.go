package main

// GetBanner returns the ASCII banner shown in the root help
func GetBanner() string {
	return `
 ███████  █████  ███████ ███████
 ██      ██   ██ ██      ██
 ███████ ███████ ███████ ███████
      ██ ██   ██      ██      ██
 ███████ ██   ██ ███████ ███████  inject
`
}
