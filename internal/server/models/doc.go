// Package models holds the persistent entities of the server.
package models
