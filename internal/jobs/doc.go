// Package jobs holds background tasks that run beside the HTTP server.
//
// StagingSweeper deletes upload staging files older than a cut-off. A
// request always removes its own staged files, so anything the sweeper
// finds was left by a crashed process.
//
//	sweeper := jobs.NewStagingSweeper(stager, 10*time.Minute, time.Hour)
//	sweeper.Start()
//	defer sweeper.Stop()
package jobs
