package ir

// Version is the profile core version reported by the CLI.
const Version = "0.1.0"
