package exam

import "errors"

var (
	// ErrSessionNotFound means the exam ID resolves to no live session,
	// either because it never existed or because it expired.
	ErrSessionNotFound = errors.New("exam session not found or expired")

	// ErrProtocolViolation means the request token matches neither the
	// expected next step nor the last completed one.
	ErrProtocolViolation = errors.New("request token does not match the expected protocol step")

	// ErrDataIntegrity means session state references a question that no
	// longer exists in the bank.
	ErrDataIntegrity = errors.New("session references unknown question data")

	// ErrNoQuestions means the bank is empty at every difficulty level.
	ErrNoQuestions = errors.New("no questions available at any difficulty level")

	// ErrIdentityRequired means the mode demands an authenticated user.
	ErrIdentityRequired = errors.New("this exam mode requires an authenticated identity")

	// ErrUnknownMode means the mode value maps to no configured policy.
	ErrUnknownMode = errors.New("unknown exam mode")
)
