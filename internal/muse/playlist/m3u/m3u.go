package m3u

import (
	"bufio"
	"os"
	"path/filepath"
	"time"

	"github.com/diamondburned/nowplaying/internal/muse/playlist"
	"github.com/pkg/errors"
	"github.com/ushis/m3u"
)

func init() {
	playlist.Register(".m3u", Parse, Write)
}

func Parse(path string) (*playlist.Playlist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	f.SetDeadline(time.Now().Add(15 * time.Second))

	p, err := m3u.Parse(f)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse m3u")
	}

	var pl = playlist.Playlist{
		Name:   playlist.NameFromPath(path),
		Path:   path,
		Tracks: make([]playlist.Track, 0, len(p)),
	}

	if s, err := f.Stat(); err == nil {
		pl.LastUpdated = s.ModTime()
	}

	for _, track := range p {
		if track.Path == "" {
			continue
		}

		var title = track.Title
		if title == "" {
			title = playlist.TitleFromPath(track.Path)
		}

		pl.Tracks = append(pl.Tracks, playlist.Track{
			Title:  title,
			Length: time.Duration(track.Time) * time.Second,
			URI:    track.Path,
		})
	}

	return &pl, nil
}

func Write(p *playlist.Playlist) error {
	var plist = make(m3u.Playlist, len(p.Tracks))

	for i, track := range p.Tracks {
		plist[i] = m3u.Track{
			Title: track.Title,
			Path:  track.URI,
			Time:  int64(track.Length.Seconds()),
		}
	}

	if err := os.MkdirAll(filepath.Dir(p.Path), os.ModePerm); err != nil {
		return errors.Wrap(err, "failed to make playlist directory")
	}

	f, err := os.Create(p.Path)
	if err != nil {
		return errors.Wrap(err, "failed to create playlist file")
	}
	defer f.Close()

	buf := bufio.NewWriter(f)

	if _, err := plist.WriteTo(buf); err != nil {
		return errors.Wrap(err, "failed to write playlist")
	}

	if err := buf.Flush(); err != nil {
		return errors.Wrap(err, "failed to flush")
	}

	return nil
}
