package hue

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// AugmentScenes fetches per-scene detail and merges the "lightstates"
// block back into the dump. The bulk dump only lists scene membership;
// the per-light target states require one detail GET per scene.
//
// This is best-effort enrichment: a scene whose detail call fails simply
// keeps its fallback record, and the dump is returned usable either way.
func (c *Client) AugmentScenes(ctx context.Context, dump *RawDump) {
	for id := range dump.Scenes {
		body, err := c.get(ctx, "scenes/"+id)
		if err != nil {
			log.Debug().Str("scene", id).Err(err).Msg("Scene detail fetch failed, keeping fallback state")
			continue
		}

		var detail RawScene
		if err := json.Unmarshal(body, &detail); err != nil {
			log.Debug().Str("scene", id).Err(err).Msg("Scene detail undecodable, keeping fallback state")
			continue
		}
		if len(detail.LightStates) == 0 {
			continue
		}

		scene := dump.Scenes[id]
		scene.LightStates = detail.LightStates
		dump.Scenes[id] = scene
	}
}
