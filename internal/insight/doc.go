// Package insight implements the category click pipeline and owns the single
// insight session.
//
// A click moves the controller to Loading, asks the backend for a condensed
// opportunity statement, publishes the panel, then asks for a narration
// script (falling back to a fixed sentence) and hands it to the audio Player.
// Each click takes a new sequence number and cancels the previous click's
// context, so only the latest click can change the panel or start audio.
package insight
