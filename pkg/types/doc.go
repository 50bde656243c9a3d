// Package types defines the movie-night domain records (movies, memories,
// discussion answers), the data provider interfaces that persist them, and
// the standard error values shared by backends and services.
package types
