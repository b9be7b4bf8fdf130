// Command gridview replays scripted pointer sessions against the grid
// viewport engine and writes traces and preview images.
package main

func main() {
	Execute()
}
