package static

import "github.com/scenevault/scenevault/asset"

// NewDummy returns a hard-coded reference catalog.
//
// It serves as the reference implementation of the Store contract: it is
// registered as-is in tests and can be swapped for any richer implementation
// without further changes as long as the interface is honored.
func NewDummy() *Store {
	data := []*asset.Asset{
		{
			Identifier:  "1c54053d-49dd-4e18-ba46-abbe49a905b0",
			Name:        "car-suv-1",
			Version:     "1.0.1-beta",
			PublishedAt: "2020-12-15T17:49:22+00:00",
			Categories:  []string{"/vehicles/cars/suv"},
			Tags:        []string{"vehicle", "cars", "suv"},
			Vendor:      "DUMMY",
			DownloadURL: "https://acme.org/downloads/vehicles/cars/suv/car-suv-1.zip",
			ProductURL:  "https://acme.org/products/purchase/car-suv-1",
			Price:       10.99,
			Thumbnail:   "https://images.com/thumbnails/256x256/car-suv-1.png",
		},
		{
			Identifier:  "3708fe73-6b82-449a-8e6f-96c6f443a93c",
			Name:        "car-suv-2",
			Version:     "1.0.1-beta",
			PublishedAt: "2020-12-15T17:49:22+00:00",
			Categories:  []string{"/vehicles/cars/suv"},
			Tags:        []string{"vehicle", "cars", "suv"},
			Vendor:      "DUMMY",
			DownloadURL: "https://acme.org/downloads/vehicles/cars/suv/car-suv-2.zip",
			ProductURL:  "https://acme.org/products/purchase/car-suv-2",
			Price:       12.99,
			Thumbnail:   "https://images.com/thumbnails/256x256/car-suv-2.png",
		},
		{
			Identifier:  "9dcf54e8-76f5-49e0-8155-c4529b5ed059",
			Name:        "car-sedan-1",
			Version:     "1.0.1-beta",
			PublishedAt: "2020-12-15T17:49:22+00:00",
			Categories:  []string{"/vehicles/cars/sedan"},
			Tags:        []string{"vehicle", "cars", "sedan"},
			Vendor:      "DUMMY",
			DownloadURL: "https://acme.org/downloads/vehicles/cars/sedan/car-sedan-1.zip",
			ProductURL:  "https://acme.org/products/purchase/car-sedan-1",
			Price:       13.99,
			Thumbnail:   "https://images.com/thumbnails/256x256/car-sedan-1.png",
		},
		{
			Identifier:  "fc6d47b9-8243-4694-8c44-3b66cbbd7d24",
			Name:        "car-sedan-2",
			Version:     "1.0.1-beta",
			PublishedAt: "2020-12-15T17:49:22+00:00",
			Categories:  []string{"/vehicles/cars/sedan"},
			Tags:        []string{"vehicle", "cars", "sedan"},
			Vendor:      "DUMMY",
			DownloadURL: "https://acme.org/downloads/vehicles/cars/sedan/car-sedan-2.zip",
			ProductURL:  "https://acme.org/products/purchase/car-sedan-2",
			Price:       14.99,
			Thumbnail:   "https://images.com/thumbnails/256x256/car-sedan-2.png",
		},
		{
			Identifier:  "ab12fe90-0c3a-41f4-9a07-7f3c2b5ed17e",
			Name:        "car-sedan-3",
			Version:     "1.0.1-beta",
			PublishedAt: "2020-12-15T17:49:22+00:00",
			Categories:  []string{"/vehicles/cars/sedan"},
			Tags:        []string{"vehicle", "cars", "sedan"},
			Vendor:      "DUMMY",
			DownloadURL: "https://acme.org/downloads/vehicles/cars/sedan/car-sedan-3.zip",
			ProductURL:  "https://acme.org/products/purchase/car-sedan-3",
			Price:       15.99,
			Thumbnail:   "https://images.com/thumbnails/256x256/car-sedan-3.png",
		},
	}

	return New("DUMMY", data)
}
