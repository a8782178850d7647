package store

// Classify exposes classify to the integration suite.
var Classify = classify
