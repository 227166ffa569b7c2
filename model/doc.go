// Package model defines the provider-agnostic abstractions for interacting
// with language model services.
//
// Core goals:
//   - Keep request/reply shapes minimal and transport independent
//   - Normalize failure classes across vendors (RateLimitError, DecodeError)
//     so the dispatch queue can apply one retry policy
//   - Facilitate lightweight mocking for tests (Mock)
//
// Providers (OpenAI, Anthropic) implement the Generator interface from this
// package so higher layers remain decoupled from vendor SDKs.
package model
