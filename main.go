// Command chrome-cli resolves a running Chrome instance's DevTools
// endpoint and talks CDP over it.
package main

import "github.com/Nunley-Media-Group/chrome-cli/cmd"

func main() {
	cmd.Execute()
}
