// Package domain models tabular solar radiation and meteorological station
// data and the statistics computed over it.
//
// # Data Source
//
// Station exports are CSV files with one row per sampling interval (typically
// one minute). The reference stations are Benin (Malanville), Sierra Leone
// (Bumbuna) and Togo (Dapaong), but any CSV with a header row is accepted.
//
// # Column Conventions
//
//	Timestamp      sample time, "2006-01-02 15:04" in most exports
//	GHI, DNI, DHI  global horizontal, direct normal and diffuse horizontal irradiance (W/m²)
//	ModA, ModB     irradiance measured by the two module sensors (W/m²)
//	Tamb           ambient temperature (°C)
//	RH             relative humidity (%)
//	WS, WSgust     wind speed and gust (m/s), WSstdev its standard deviation
//	WD             wind direction (degrees from north), WDstdev its standard deviation
//	BP             barometric pressure (hPa)
//	Cleaning       1 when the modules were cleaned during the interval
//	Precipitation  rainfall (mm/min)
//	TModA, TModB   module temperatures (°C)
//	Comments       free text, usually empty
//
// Nothing in this package depends on these names. Charts and statistics take
// column names chosen by the caller.
//
// # Missing Values
//
// Empty cells and the usual spreadsheet tokens (NA, N/A, NaN, null, #N/A) are
// parsed as missing. Numeric accessors return NaN for them and every
// statistic skips them.
//
// # Statistics
//
// Describe reports count, mean, sample standard deviation, min, quartiles
// and max. Quartiles interpolate linearly between closest ranks. Z-scores use
// the same sample standard deviation. Correlations are Pearson coefficients
// over rows where both columns are present.
package domain
