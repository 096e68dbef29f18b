// Package model defines the core data structures used throughout
// the apod-downloader application.
//
// # Date
//
// Date is an immutable calendar day. It can only be built through NewDate,
// which rejects days that do not exist in the Gregorian calendar:
//
//	d, err := model.NewDate(1998, time.March, 28)
//	fmt.Println(d.ISO())     // 1998-03-28
//	fmt.Println(d.Display()) // Mar 28, 1998
//
// # Triple
//
// Triple holds a month/day/year as typed on the command line:
//
//	tr, err := model.ParseTriple("03 28 1998")
//	d, err := tr.Date()
//
// # Metadata
//
// Metadata is the parsed APOD response. The well known fields have typed
// accessors, everything else is kept in Fields:
//
//	md, err := model.ParseMetadata(body)
//	fmt.Println(md.Title, md.URL)
//
// # Errors
//
// The sentinel errors in errors.go classify every way a run can end early.
// Callers match them with errors.Is.
package model
