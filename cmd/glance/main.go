// Package main is the entry point for glance, a notification daemon that
// exposes its history to waybar.
package main

func main() {
	Execute()
}
