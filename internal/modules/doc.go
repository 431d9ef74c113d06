// Package modules contains the features of the host process.
//
// Each subdirectory implements module.Module. internal/app builds the list,
// registers every module with the container and then boots them in order.
package modules
