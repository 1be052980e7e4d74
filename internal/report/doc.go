// Package report renders bone length diagnostics for a normalisation run:
// PNG time series of every bone's length before and after enforcement
// (gonum/plot), and a single self-contained HTML page (go-echarts) with
// per-bone variation and the estimated body dimensions.
//
// Reports are diagnostic only; nothing here feeds back into processing.
package report
