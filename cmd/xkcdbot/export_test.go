package main

// ParseLevel exposes parseLevel for tests.
var ParseLevel = parseLevel
