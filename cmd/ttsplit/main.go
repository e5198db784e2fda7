// ttsplit CLI entry point
//
// ttsplit splits natural-language text into chunks that fit the input limits
// of text-to-speech and language models.
package main

import "github.com/jbctechsolutions/ttsplit/internal/presentation/cli/commands"

func main() {
	commands.Execute()
}
