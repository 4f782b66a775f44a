package download

import "github.com/diamondburned/nowplaying/internal/muse/playlist"

// Downloader is what the player sheet needs from the download service.
type Downloader interface {
	// Lookup returns the download state of the given media ID.
	Lookup(mediaID string) State
	// Add asks for the track to be downloaded.
	Add(track playlist.Track) (Intent, error)
	// Remove asks for the downloaded track to be deleted.
	Remove(mediaID string) (Intent, error)
}
