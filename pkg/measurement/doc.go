// Package measurement reads two-column instrument exports and derives the
// figures the lab cares about: diffraction peaks for XRD scans, and
// saturation, remanence and coercivity for magnetometry loops.
package measurement
