// Package histogram builds one-dimensional combined-energy histograms from
// two-channel detector count tables.
//
// Every input row carries two channel readings and a count. The combined
// energy of a row is the sum of its channels; [Aggregate] groups rows by
// combined energy and sums their counts into a [Series] ordered by energy:
//
//	rows := []histogram.Row{{CH1: 1, CH2: 1, Counts: 5}, {CH1: 1, CH2: 2, Counts: 3}}
//	s := histogram.Aggregate(rows)
//	// s.Energies() == [2 3], s.Counts() == [5 3]
//
// Tables whose columns are only known at run time go through [Schema] and
// [AggregateTable], which report missing columns as a [*SchemaError].
//
// A [Range] is a closed interval on the energy axis. It restricts views of a
// series (see [Series.Restrict]) and never mutates the series itself.
package histogram
