// Package download tracks per-track download state and turns the player's
// download button into add/remove intents. A Worker consumes the intents and
// fetches remote tracks into a local directory.
package download
