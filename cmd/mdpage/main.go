// Command mdpage renders markdown articles into HTML pages and static
// sites, and serves them locally with live reload.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/mdpage/cmd/mdpage/commands"
	ferrors "git.home.luguber.info/inful/mdpage/internal/foundation/errors"
)

func main() {
	var cli commands.CLI
	parser, err := kong.New(&cli,
		kong.Name("mdpage"),
		kong.Description("Render markdown articles into HTML pages and static sites."),
	)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "mdpage: %v\n", err)
		fmt.Fprintln(os.Stderr, "Run 'mdpage --help' for usage.")
		os.Exit(2)
	}

	err = ctx.Run(&commands.Global{Logger: slog.Default()})
	ferrors.NewCLIErrorAdapter(cli.Verbose > 0, nil).HandleError(err)
}
