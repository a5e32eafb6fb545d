package notes

import (
	"context"

	"github.com/skosovsky/mcptoolkit"
	"github.com/skosovsky/mcptoolkit/tools"
)

// Handlers returns the add and read handlers backed by s, keyed by tool identifier.
// Add is synchronous; read is asynchronous and runs on its own goroutine.
func Handlers(s Store) map[string]mcptoolkit.Handler {
	return map[string]mcptoolkit.Handler{
		tools.AddNoteToolID:   mcptoolkit.Sync(addFunc(s), mcptoolkit.WithName("notes.add")),
		tools.ReadNotesToolID: mcptoolkit.Async(mcptoolkit.Spawn(readFunc(s)), mcptoolkit.WithName("notes.read")),
	}
}

// Register adds Handlers(s) to reg.
func Register(reg *mcptoolkit.Registry, s Store) {
	for id, h := range Handlers(s) {
		reg.Register(id, h)
	}
}

func addFunc(s Store) mcptoolkit.Func {
	return func(ctx context.Context, args mcptoolkit.Args) (any, error) {
		content, _ := args["content"].(string)
		n, err := s.Add(ctx, content)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"success": true,
			"message": tools.DefaultAddNoteMessage,
			"id":      n.ID,
		}, nil
	}
}

func readFunc(s Store) mcptoolkit.Func {
	return func(ctx context.Context, _ mcptoolkit.Args) (any, error) {
		list, err := s.List(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"content": Join(list),
			"count":   len(list),
		}, nil
	}
}
