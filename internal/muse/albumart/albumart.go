package albumart

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/pkg/errors"
)

// ErrNoAlbumArt is returned when neither a cover file nor an embedded picture
// could be found.
var ErrNoAlbumArt = errors.New("no album art")

// Stolen from: mpv/blob/master/player/external_files.c#L45, which was
// stolen from: vlc/blob/master/modules/meta_engine/folder.c#L40.
// Sorted by priority.
var coverFiles = []string{
	"AlbumArt.jpg",
	"Album.jpg",
	"cover.jpg",
	"cover.png",
	"front.jpg",
	"front.png",
	"Cover.jpg",

	"AlbumArtSmall.jpg",
	"Folder.jpg",
	"Folder.png",
	".folder.png",
	"thumb.jpg",

	"front.bmp",
	"front.gif",
	"cover.gif",
}

// HTTPClient is the client used for remote thumbnails.
var HTTPClient = &http.Client{Timeout: 30 * time.Second}

type File struct {
	io.ReadCloser
	Extension string // jpeg, ...
}

// Fetch fetches the thumbnail at src. Remote sources (http and https) are
// downloaded; anything else is treated as a local track path, for which a
// cover file in the same directory is preferred over the embedded picture.
func Fetch(ctx context.Context, src string) (*File, error) {
	if src == "" {
		return nil, ErrNoAlbumArt
	}

	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return fetchRemote(ctx, src)
	}

	return AlbumArt(ctx, src)
}

func fetchRemote(ctx context.Context, url string) (*File, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	resp, err := HTTPClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get thumbnail")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, errors.Errorf("unexpected status %s", resp.Status)
	}

	ext := strings.TrimPrefix(resp.Header.Get("Content-Type"), "image/")
	if ext == resp.Header.Get("Content-Type") {
		ext = filepath.Ext(req.URL.Path)
	}

	return &File{
		ReadCloser: resp.Body,
		Extension:  normalizeExt(ext),
	}, nil
}

// AlbumArt queries for an album art for the local track at path. The function
// may read the album art into memory.
func AlbumArt(ctx context.Context, path string) (*File, error) {
	// Prioritize searching for external album arts over reading the album art
	// into memory.
	dir := filepath.Dir(path)

	for _, coverFile := range coverFiles {
		f, err := os.Open(filepath.Join(dir, coverFile))
		if err != nil {
			continue
		}

		return &File{
			ReadCloser: f,
			Extension:  normalizeExt(filepath.Ext(coverFile)),
		}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open track")
	}
	defer f.Close()

	if deadline, ok := ctx.Deadline(); ok {
		f.SetDeadline(deadline)
	} else {
		// Use a 1 minute timeout.
		f.SetDeadline(time.Now().Add(time.Minute))
	}

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read tag")
	}

	pic := m.Picture()
	if pic == nil {
		return nil, ErrNoAlbumArt
	}

	return &File{
		ReadCloser: io.NopCloser(bytes.NewReader(pic.Data)),
		Extension:  normalizeExt(pic.Ext),
	}, nil
}

func normalizeExt(ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	ext = strings.ToLower(ext)

	if ext == "jpg" {
		ext = "jpeg"
	}

	return ext
}
