// Package peak finds local maxima in a sampled curve and measures how far
// each one stands out from its surroundings.
//
// A peak is a sample strictly greater than both of its immediate
// neighbours; the first and last samples are never peaks. Plateaus are not
// peaks.
//
// The prominence of a peak is the height it must descend before it can
// reach higher ground. From the peak, walk outwards on each side until a
// sample at least as high as the peak or the end of the data is reached.
// The lowest sample passed on each side is that side's valley, the series
// boundary sample included. Prominence is the peak height minus the higher
// of the two valleys. A spike of height h on a zero baseline therefore has
// prominence h.
package peak
