package service

import "errors"

var (
	ErrExtraction      = errors.New("article extraction failed")
	ErrClassification  = errors.New("image classification failed")
	ErrGeneration      = errors.New("text generation failed")
	ErrScheduling      = errors.New("scheduling failed")
	ErrUnknownPlatform = errors.New("unknown platform")
	ErrInvalidApproval = errors.New("invalid approval value")
)
