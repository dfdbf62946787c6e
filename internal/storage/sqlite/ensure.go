package sqlite

import (
	"github.com/felixgeelhaar/lingo/internal/interaction"
	"github.com/felixgeelhaar/lingo/internal/progress"
)

// Ensure SQLite stores implement the storage interfaces.
var (
	_ progress.Store       = (*ProgressStore)(nil)
	_ interaction.Recorder = (*InteractionStore)(nil)
)
