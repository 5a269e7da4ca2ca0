//go:build !windows

package main

func SetConsoleTitle(title string) {}

func resizeCli() {}
