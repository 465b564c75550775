// Package channel implements the lock-free in-process message channel
// family: single-producer/single-consumer, multi-producer/single-consumer,
// and broadcast. All three move owned values between goroutines without
// locks in the hot path; only MPSC's producer-side slot reservation uses a
// CAS loop.
package channel
