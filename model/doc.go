// Package model defines the geometric primitives and fragment types shared
// by the rest of the module: bounding boxes in y-down page coordinates,
// affine transforms, and positioned text fragments with their canonical
// reading order.
package model
