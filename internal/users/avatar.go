package users

import (
	"fmt"
	"mime"
	"strings"
)

var avatarExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
}

// avatarExtension validates the declared content type and returns the file
// extension used for the stored object.
func avatarExtension(contentType string) (string, string, error) {
	mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(contentType))
	if err != nil {
		return "", "", fmt.Errorf("invalid content type %q", contentType)
	}
	mediaType = strings.ToLower(mediaType)
	if mediaType == "image/jpg" {
		mediaType = "image/jpeg"
	}
	ext, ok := avatarExtensions[mediaType]
	if !ok {
		return "", "", fmt.Errorf("content type %s is not allowed; use JPEG, PNG or GIF", mediaType)
	}
	return mediaType, ext, nil
}

func avatarObjectName(userID fmt.Stringer, ext string) string {
	return fmt.Sprintf("%s/avatar.%s", userID.String(), ext)
}
