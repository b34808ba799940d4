// Package layout implements record segmentation: locating anchor phrases
// on a page and clustering the page's fragments into one group per anchor
// occurrence using row banding.
package layout
