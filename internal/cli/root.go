package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/myvaultapp/myvault/internal/common"
)

const help = `Commands:
  signin            sign in with an OAuth access token
  offline           open a cached read-only view via an ID token
  list              list items, newest first
  search <text>     filter items
  upload <path...>  encrypt and store files
  get <id>          decrypt an item into the download directory
  preview <id>      decrypt and describe an item
  edit <id>         change title/category/tags/album
  delete <id>       remove blob and record
  rotate            re-encrypt everything under a new password
  export <path>     write the metadata backup
  import <path>     restore metadata from a backup
  activity          show recent session events
  logout            revoke the token and drop session state
  exit              quit`

// Run is the REPL loop. It returns when the user exits or stdin closes.
func (a *App) Run(ctx context.Context) error {
	fmt.Println("MyVault console. Type 'help' for commands.")

	for {
		fmt.Print("> ")
		line, err := a.reader.ReadString('\n')
		if err != nil {
			return nil
		}

		cmd, arg := splitCommand(line)
		if cmd == "" {
			continue
		}
		if cmd == "exit" || cmd == "quit" {
			a.signOut(ctx)
			return nil
		}

		if err := a.dispatch(ctx, cmd, arg); err != nil {
			printError(err)
		}
	}
}

func splitCommand(line string) (cmd, arg string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", ""
	}
	parts := strings.SplitN(line, " ", 2)
	cmd = strings.ToLower(parts[0])
	if len(parts) == 2 {
		arg = strings.TrimSpace(parts[1])
	}
	return cmd, arg
}

func (a *App) dispatch(ctx context.Context, cmd, arg string) error {
	switch cmd {
	case "help":
		fmt.Println(help)
		return nil
	case "signin":
		return a.signIn(ctx)
	case "offline":
		return a.signInOffline(ctx)
	case "logout":
		a.signOut(ctx)
		return nil
	}

	if a.session == nil {
		return common.ErrNotSignedIn
	}

	switch cmd {
	case "list":
		return a.listItems("")
	case "search":
		return a.listItems(arg)
	case "upload":
		return a.uploadFiles(ctx, strings.Fields(arg))
	case "get":
		return a.getItem(ctx, arg)
	case "preview":
		return a.previewItem(ctx, arg)
	case "edit":
		return a.editItem(ctx, arg)
	case "delete":
		return a.deleteItem(ctx, arg)
	case "rotate":
		return a.rotatePassword(ctx)
	case "export":
		return a.exportMetadata(arg)
	case "import":
		return a.importMetadata(ctx, arg)
	case "activity":
		return a.showActivity()
	default:
		return fmt.Errorf("unknown command %q, try 'help'", cmd)
	}
}

func printError(err error) {
	switch {
	case errors.Is(err, common.ErrAuthenticationFailed):
		fmt.Println("Wrong password, or the stored data is corrupted.")
	case errors.Is(err, common.ErrAccessDenied):
		fmt.Println("This account is not on the allow list.")
	case errors.Is(err, common.ErrRemoteUnavailable):
		fmt.Printf("The remote store is unreachable: %v\n", err)
	case errors.Is(err, common.ErrNotSignedIn):
		fmt.Println("Sign in first.")
	default:
		fmt.Printf("Error: %v\n", err)
	}
}
