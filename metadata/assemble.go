package metadata

// Assemble merges the pipeline's partial results into a fresh record.
// Later sources win: extracted fields, then their normalized rewrites, then
// probe results (favicon, robotsFile, sitemap). None of the inputs are
// modified.
func Assemble(extracted, normalized Record, probed map[string]string) Record {
	out := make(Record, len(extracted)+len(probed))
	for k, v := range extracted {
		out.Set(k, v)
	}
	for k, v := range normalized {
		out.Set(k, v)
	}
	for k, v := range probed {
		out.Set(k, v)
	}
	return out
}
