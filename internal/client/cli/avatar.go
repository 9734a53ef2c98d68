package cli

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"os"
	"path/filepath"
)

// Avatar uploads an image file through a presigned URL and commits it as
// the profile image.
func (a *App) Avatar(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.fail("avatar", errors.New("usage: avatar <path>"))
	}
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		return a.fail("avatar", err)
	}

	name := filepath.Base(path)
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	up, err := a.api.ProfileImageUploadURL(ctx, name, contentType, int64(len(data)))
	if err != nil {
		return a.fail("avatar", err)
	}
	if err := a.upload(ctx, up.URL, contentType, data); err != nil {
		return a.fail("avatar", err)
	}
	u, err := a.api.CommitProfileImage(ctx, up.Key)
	if err != nil {
		return a.fail("avatar", err)
	}

	if u.ProfileImageURL != nil {
		a.printf("Profile image set: %s\n", *u.ProfileImageURL)
	}
	return nil
}
