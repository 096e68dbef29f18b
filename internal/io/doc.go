// Package ioutils provides file system and image processing utilities.
//
// This package contains:
//   - Store, which saves images as root/<year>/<month>/<YYYY-MM-DD>.jpg
//   - Atomic file writing and directory creation
//   - Image resizing, JPEG conversion and captioning
//
// # Storing Images
//
//	store := ioutils.NewStore("") // current working directory
//	path, err := store.Save(ctx, date, data)
//
// Paths are a pure function of the root and the date:
//
//	ioutils.ImagePath("/pics", date) // "/pics/1998/3/1998-03-28.jpg"
//
// # Image Processing
//
// The ImageService handles optional post-processing:
//
//	svc := ioutils.NewImageService()
//
//	// Resize image to fit within 1024x1024
//	resized, _ := svc.ResizeImage(ctx, imageData, 1024, 1024)
//
//	// Convert a PNG to JPEG
//	jpeg, _ := svc.ConvertToJPEG(ctx, pngData)
//
//	// Draw the title onto the image
//	captioned, _ := svc.Caption(ctx, imageData, "The Horsehead Nebula")
package ioutils
