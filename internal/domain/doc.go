// Package domain models per-station climatological day-of-year normals and the
// two text formats they are delivered in.
//
// # Data Source
//
// Normals come as plain text files prepared by the climate division. Each file
// covers one parameter: paramid 110 (precipitation) arrives in format A and
// paramid 212 (air temperature) arrives in format B.
//
// # Format A
//
// One whitespace-separated record per line:
//
//	<stationid> <date> <day_of_year> <normal> <years_of_record>
//	7010 20200101 1 5.3 30
//
// The normal is already final; only scaling is applied. Records for a station
// form one contiguous block.
//
// # Format B
//
// A columnar report. A header line opens each station block and is followed by
// rows of "<day> <value>"; everything else (banners, comments, blank lines) is
// ignored:
//
//	TAM-normal for 7010 - Oslo Blindern
//	  1  -4.3
//	  2  -4.4
//
// Values are raw daily temperatures. The derived paramid 211 normal is the
// trailing 30-day circular mean of these values, see [WindowAverager].
//
// # Stored Values
//
// Every normal is stored as integer tenths, round-half-up(raw * 10). The
// value [Missing] (-32767) marks a day without data and never collides with
// a physical value.
//
// Station ids outside [MinStationID, MaxStationID] are placeholder ids and are
// dropped without error. Day 366 is not modeled.
package domain
