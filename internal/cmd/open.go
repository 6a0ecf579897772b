package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/knowyourrights/kyr/internal/appdir"
	"github.com/knowyourrights/kyr/internal/chat"
	"github.com/knowyourrights/kyr/internal/nav"
)

var openCategory string

// openCmd represents the open command
var openCmd = &cobra.Command{
	Use:   "open <session-id|link>",
	Short: "Switch the running chat to a conversation",
	Long: `Point the chat to another conversation.

A running 'kyr chat' switches to it right away; otherwise the next
'kyr chat' starts there. Pass "new" to start a new conversation.

Examples:
  kyr open 3f2a...                          # a session id
  kyr open '/chat?session_id=3f2a...'       # a link printed by /link
  kyr open new --category health_safety`,
	Args: cobra.ExactArgs(1),
	RunE: runOpen,
}

func init() {
	rootCmd.AddCommand(openCmd)

	openCmd.Flags().StringVarP(&openCategory, "category", "c", "", "Category to open the conversation in")
}

func runOpen(cmd *cobra.Command, args []string) error {
	path, err := appdir.LocationPath()
	if err != nil {
		return err
	}

	loc, err := openTarget(args[0], openCategory, savedLocation(path))
	if err != nil {
		return err
	}
	if err := nav.WriteLocation(path, loc); err != nil {
		return fmt.Errorf("failed to save location: %w", err)
	}
	fmt.Printf("🔗 %s\n", loc)
	return nil
}

// openTarget builds the location for an open request. An explicit category
// wins; otherwise a link keeps its own and a bare id takes the one of current.
func openTarget(arg, category string, current *nav.Location) (nav.Location, error) {
	explicit := category != ""
	if explicit {
		c, err := chat.ParseCategory(category)
		if err != nil {
			return nav.Location{}, err
		}
		category = string(c)
	} else if current != nil {
		category = current.Category()
	}

	switch {
	case strings.HasPrefix(arg, "/") || strings.Contains(arg, "?"):
		loc, err := nav.ParseLocation(arg)
		if err != nil {
			return nav.Location{}, err
		}
		if loc.Path != nav.ChatPath {
			return nav.Location{}, fmt.Errorf("unsupported path %q", loc.Path)
		}
		if category != "" && (explicit || loc.Category() == "") {
			loc = loc.With(nav.ParamCategory, category)
		}
		return loc, nil
	case arg == "new":
		return nav.ChatLocation("", category), nil
	default:
		return nav.ChatLocation(arg, category), nil
	}
}
