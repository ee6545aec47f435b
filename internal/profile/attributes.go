package profile

// KnownAttributeNames lists the canonical attribute names a resident profile
// can carry. Field auto-detection matches template fields against this set;
// individual residents may have values for only a subset.
func KnownAttributeNames() []string {
	return []string{
		"nama",
		"nik",
		"nomor_kk",
		"tempat_lahir",
		"tanggal_lahir",
		"jenis_kelamin",
		"agama",
		"pekerjaan",
		"status_perkawinan",
		"kewarganegaraan",
		"alamat",
		"rt",
		"rw",
	}
}
