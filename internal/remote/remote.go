// Package remote defines the capability the sync engine needs from a
// remote document provider: create one opaque document, overwrite its
// content, and export it in a requested format. How the capability was
// authorized is not this package's concern.
package remote

import (
	"context"
	"errors"
	"fmt"
)

// MIME types used for the habit document.
const (
	MIMESpreadsheet = "application/vnd.google-apps.spreadsheet"
	MIMECSV         = "text/csv"
)

// DocumentStore is the remote document capability consumed by the sync
// engine. Implementations must return *NotFoundError when the document
// no longer exists and *AuthError when the capability is no longer
// authorized.
type DocumentStore interface {
	// CreateDocument creates a document with the given display name and
	// initial content, returning its identifier.
	CreateDocument(ctx context.Context, name string, data []byte, mimeType string) (string, error)

	// UpdateDocument overwrites the document's content in place.
	UpdateDocument(ctx context.Context, id string, data []byte, mimeType string) error

	// ExportDocument fetches the document's content converted to the
	// given MIME type.
	ExportDocument(ctx context.Context, id string, mimeType string) ([]byte, error)
}

// NotFoundError indicates the remote document no longer exists, e.g.
// because the user deleted it out from under us.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("remote document %s not found", e.ID)
}

// IsNotFound reports whether err (or any error in its chain) is a
// NotFoundError.
func IsNotFound(err error) bool {
	var nfErr *NotFoundError
	return errors.As(err, &nfErr)
}

// AuthError indicates the capability is not (or no longer) authorized.
// Canceled marks an explicit user cancellation of the authorization
// flow, which is suppressed rather than shown as an error.
type AuthError struct {
	Message  string
	Canceled bool
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error: %s", e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an
// AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsCanceled reports whether err is an AuthError caused by explicit
// user cancellation.
func IsCanceled(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr) && authErr.Canceled
}
