// Package main provides the entry point for the URLFinder CLI.
//
// URLFinder fetches seed URLs and extracts page URLs, JavaScript URLs and
// sensitive-looking strings from the responses. It can also guess candidate
// paths next to what it found.
//
// Usage:
//
//	urlfinder scan -u https://example.com
//	urlfinder scan -f seeds.txt -m 3 -z 3
//	urlfinder history
//
// See --help for all available options.
package main

// main is the entry point for URLFinder.
func main() {
	Execute()
}
