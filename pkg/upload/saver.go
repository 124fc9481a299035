package upload

import (
	"context"
	"fmt"
	"net/http"
)

// Saver persists a file and returns its location (a path, key or URL).
// It is called once per File.Save call and is not required to deduplicate.
type Saver interface {
	Save(ctx context.Context, f *File) (string, error)
}

// SaverFunc adapts an ordinary function to the Saver interface.
type SaverFunc func(ctx context.Context, f *File) (string, error)

// Save calls fn(ctx, f).
func (fn SaverFunc) Save(ctx context.Context, f *File) (string, error) {
	return fn(ctx, f)
}

// DirectoryNamer is implemented by savers that choose the target directory.
// original is the directory declared for the form field ("" when none).
type DirectoryNamer interface {
	Directory(r *http.Request, original string) string
}

// CollisionPolicy decides what happens when the target name is already taken.
type CollisionPolicy int

const (
	// CollisionSuffix keeps both files by appending "-1", "-2", ... to the new name.
	CollisionSuffix CollisionPolicy = iota
	// CollisionOverwrite replaces the existing file; the last write wins.
	CollisionOverwrite
	// CollisionError fails the save with ErrFileExists.
	CollisionError
)

// maxCollisionAttempts bounds the suffix search.
const maxCollisionAttempts = 1000

func (p CollisionPolicy) String() string {
	switch p {
	case CollisionSuffix:
		return "suffix"
	case CollisionOverwrite:
		return "overwrite"
	case CollisionError:
		return "error"
	default:
		return fmt.Sprintf("CollisionPolicy(%d)", int(p))
	}
}

// ParseCollisionPolicy maps "suffix", "overwrite" or "error" to a policy.
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch s {
	case "", "suffix":
		return CollisionSuffix, nil
	case "overwrite":
		return CollisionOverwrite, nil
	case "error":
		return CollisionError, nil
	default:
		return 0, fmt.Errorf("%w: unknown collision policy %q", ErrInvalidConfig, s)
	}
}

// candidateName returns the file name to try on the given attempt.
// Attempt 0 is the name itself; later attempts insert "-N" before the extension.
func candidateName(f *File, attempt int) string {
	if attempt == 0 {
		return f.FullName
	}
	name := fmt.Sprintf("%s-%d", f.Name, attempt)
	if f.Extension != "" {
		name += "." + f.Extension
	}
	return name
}
