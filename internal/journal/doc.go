// Package journal keeps a local SQLite record of finished insight pipelines:
// which company and category were clicked, whether the panel reached Ready or
// Failed, the texts that were shown and spoken, and whether the narration fell
// back to the fixed sentence. Store implements insight.Recorder.
package journal
