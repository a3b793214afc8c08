/*
Package main contains a command-line example for gxserialrpc.

The example shows how to:
  - load the settings from a file, environment variables and flags
  - send one named command with name=value arguments and print the result
  - print device debug lines and the failures without a request
  - serve the client metrics for Prometheus
*/
package main
