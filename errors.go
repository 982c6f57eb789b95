package mindgames

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrNoCompletion is returned when the completion endpoint answered without usable content.
	ErrNoCompletion = goerr.New("no completion found in the response")

	// ErrRoleNotFound is returned when a Codenames observation lacks the role prompt line.
	ErrRoleNotFound = goerr.New("codenames role not found in observation")

	ErrInvalidClue      = goerr.New("invalid clue")
	ErrInvalidParameter = goerr.New("invalid parameter")
)

var (
	// ErrTagTokenExceeded marks errors caused by a prompt longer than the model context window.
	ErrTagTokenExceeded = goerr.NewTag("token_exceeded")

	// ErrTagCompletionFailed marks the last cause once every completion attempt failed.
	ErrTagCompletionFailed = goerr.NewTag("completion_failed")
)
