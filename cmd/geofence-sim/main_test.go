package main

import "testing"

func TestParseRegion(t *testing.T) {
	region, err := parseRegion("45.0703, 7.6869, 1500")
	if err != nil {
		t.Fatalf("parseRegion: %v", err)
	}
	if region.Center.Lat != 45.0703 || region.Center.Lon != 7.6869 || region.RadiusM != 1500 {
		t.Fatalf("parseRegion = %+v", region)
	}

	for _, bad := range []string{
		"",
		"1,2",
		"1,2,3,4",
		"lat,2,3",
		"1,lon,3",
		"1,2,radius",
		"91,0,100",
		"0,0,-5",
	} {
		if _, err := parseRegion(bad); err == nil {
			t.Errorf("parseRegion(%q) succeeded, want error", bad)
		}
	}
}

func TestRegionListFlag(t *testing.T) {
	var regions regionList
	if err := regions.Set("0,0,500000"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := regions.Set("45,7,100"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if len(regions) != 2 {
		t.Fatalf("regions = %d, want 2", len(regions))
	}
	if regions.String() == "" {
		t.Fatalf("String() empty")
	}
}
