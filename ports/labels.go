package ports

import (
	"context"

	"enzclass/domain/label"
)

// LabelSource loads the identifier-to-EC-class table. The core imposes no
// format beyond "loadable into a mapping".
type LabelSource interface {
	Load(ctx context.Context) (*label.Set, error)
}
