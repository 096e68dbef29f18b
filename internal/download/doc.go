// Package download provides the orchestration logic for fetching one
// Astronomy Picture of the Day.
//
// # Pipeline
//
// The Pipeline runs these steps in order, stopping at the first failure:
//
//  1. Select the date (explicit, surprise, or yesterday)
//  2. Build the query URL and fetch the metadata
//  3. Download the image the metadata points at
//  4. Optionally caption, resize or convert the image
//  5. Save it as <root>/<year>/<month>/<YYYY-MM-DD>.jpg
//
// # Basic Usage
//
//	pipeline := download.NewPipeline(settings, func(event download.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//
//	result, err := pipeline.Run(ctx, download.Request{Surprise: true})
//	if err != nil {
//	    os.Exit(download.ExitCode(err))
//	}
//	fmt.Println(result.Path)
//
// # Progress Tracking
//
// Progress is reported via a callback function that receives ProgressEvent:
//
//	type ProgressEvent struct {
//	    Message string
//	    Level   ProgressLevel // Info, Verbose, Warning, Error, Success
//	}
//
// Verbose events carry the details printed in verbose mode. Front-ends filter
// them; the pipeline behaves the same either way.
//
// # Scheduling
//
// Scheduler repeats runs on a cron schedule until its context ends:
//
//	scheduler, err := download.NewScheduler(pipeline, "0 9 * * *", download.Request{})
//	if err != nil {
//	    return err
//	}
//	return scheduler.Run(ctx)
//
// # Exit Codes
//
// ExitCode maps a Run error to a distinct exit status. Selecting no date is
// an expected outcome with its own code (3), separate from failures.
package download
