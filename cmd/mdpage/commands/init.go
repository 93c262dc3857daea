package commands

import (
	"fmt"

	"git.home.luguber.info/inful/mdpage/internal/config"
	ferrors "git.home.luguber.info/inful/mdpage/internal/foundation/errors"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite an existing configuration file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	if err := config.Init(root.Config, i.Force); err != nil {
		return ferrors.ConfigError("failed to initialize configuration").
			WithCause(err).
			WithContext("path", root.Config).
			Build()
	}
	fmt.Printf("Wrote %s\n", root.Config)
	return nil
}
