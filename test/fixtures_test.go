//go:build integration

package test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var day = time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC)

// tripsCSV covers three drivers in city 1 on one day. With a 30 minute
// window and the ratings produced by the labeler, driver D1 can chain
// several rides.
const tripsCSV = `ride_id,driver_id,city_id,start_time,end_time,duration_mins,distance_km,net_earnings,tips,product,is_ev,home_city_id
a1,D1,1,2023-01-10 08:00:00,2023-01-10 08:20:00,20,8,10,1,UberX,0,1
a2,D1,1,2023-01-10 12:00:00,2023-01-10 12:30:00,30,12,9,0,UberX,0,1
b1,D2,1,2023-01-10 08:10:00,2023-01-10 08:50:00,40,25,25,3,Comfort,1,1
b2,D2,1,2023-01-10 13:00:00,2023-01-10 13:40:00,40,20,18,2,Comfort,1,1
c1,D3,1,2023-01-10 09:00:00,2023-01-10 09:30:00,30,14,12,0,UberX,0,1
c2,D3,1,2023-01-10 10:00:00,2023-01-10 10:20:00,20,9,8,1,UberX,0,1
c3,D3,1,2023-01-10 16:00:00,2023-01-10 16:45:00,45,30,30,4,Black,0,1
`

func writeTrips(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trips.csv")
	require.NoError(t, os.WriteFile(path, []byte(tripsCSV), 0o644))
	return path
}
