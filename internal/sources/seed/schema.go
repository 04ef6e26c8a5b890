package seed

// File is the top-level structure of a seed file.
//
//	links:
//	  - alias: docs
//	    url: https://example.com/documentation
type File struct {
	Links []Link `yaml:"links"`
}

// Link is one alias to register at boot.
type Link struct {
	Alias string `yaml:"alias"`
	URL   string `yaml:"url"`
}
