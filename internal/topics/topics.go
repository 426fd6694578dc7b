// Package topics holds the clustered seed-topic taxonomy and selection logic.
package topics

import (
	"math/rand/v2"
	"sort"
)

// Clusters maps a cluster name to its seed topics. Every topic belongs to
// exactly one cluster; see TestTopicsBelongToOneCluster.
var Clusters = map[string][]string{
	"character_prompts": {
		"3D Character Creator", "Anime Character Prompt", "3d animation prompt ai",
		"surreal art prompt ai", "kawaii cute design prompt", "Hyper Realistic",
		"fantasy character prompt", "sci fi character design", "steampunk character prompt",
		"villain character concept", "hero character backstory", "mythical creature prompt",
		"hyper realistic character", "photorealistic character design", "ultra realistic portrait",
		"realistic human character", "lifelike character rendering", "detailed realistic faces",
	},
	"branding_prompts": {
		"AI Logo / Mascot Prompt", "Product Mockup Generation", "Social Media Template Prompt",
		"Styling Influencer Photos", "Interior / Room Design AI Prompt",
	},
	"social_media_ads": {
		"video ai", " ads creative", " affiliate ", "ugc video ai",
		"video affiliate prompt", "viral video prompt ai",
	},
	"poster_design": {
		"movie poster design", "music poster design", "concert poster template",
		"vintage movie poster", "retro concert poster", "film poster inspiration",
		"event poster design", "band poster aesthetic", "typography poster design",
		"graphic poster layout", "poster illustration style", "advertising poster template",
		"minimalist poster design", "bold poster typography", "creative poster ideas",
		"poster design trends", "visual poster concepts", "artistic poster layouts",
	},
	"concept_art": {
		"concept art techniques", "environment concept art", "character concept design",
		"creature concept art", "storytelling concept art", "visual development art",
		"film concept art", "game concept art", "mood board concept art",
		"color scripting", "ideation sketches", "production concept art",
		"concept art workflow", "digital painting concept", "worldbuilding art",
		"environment ideation", "character silhouette design", "concept art portfolio",
	},
	"portrait_photography": {
		"portrait photography lighting", "studio portrait setup", "natural light portraits",
		"portrait posing tips", "headshot photography", "family portrait ideas",
		"creative portrait concepts", "moody portrait lighting", "portrait retouching techniques",
		"portrait photography gear", "outdoor portrait locations", "portrait composition rules",
		"dramatic portrait lighting", "portrait photography workshops", "portrait editing workflow",
		"softbox portrait lighting", "portrait depth of field", "portrait storytelling",
	},
}

// clusterNames is computed once so Pick doesn't re-sort per request.
var clusterNames = func() []string {
	names := make([]string, 0, len(Clusters))
	for name := range Clusters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}()

// Valid reports whether name is a known cluster.
func Valid(name string) bool {
	_, ok := Clusters[name]
	return ok
}

// Names returns the cluster names in stable order.
func Names() []string {
	return clusterNames
}

// Pick selects a random topic. If cluster names a known cluster the topic
// comes from it; an empty or unknown cluster falls back to a random one.
// Returns the topic and the cluster it was drawn from.
func Pick(cluster string) (string, string) {
	if !Valid(cluster) {
		cluster = clusterNames[rand.IntN(len(clusterNames))]
	}
	seeds := Clusters[cluster]
	return seeds[rand.IntN(len(seeds))], cluster
}
